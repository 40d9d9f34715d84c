package gtfsedit

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"slices"
	"strings"
	"testing"
)

func TestStableOutput(t *testing.T) {
	input := buildArchive(t, sampleFeed)

	feed, issues, err := Load(input, nil)
	require.NoError(t, err, "load")
	require.Empty(t, issues)

	exported, err := Export(feed)
	require.NoError(t, err, "export")

	assertGTFSEqual(t, input, exported)
}

func TestRoundTripIsExact(t *testing.T) {
	feed := loadSample(t)

	exported, err := Export(feed)
	require.NoError(t, err)

	got := readArchive(t, exported)
	require.Len(t, got, len(sampleFeed))
	for _, m := range sampleFeed {
		assert.Equal(t, m.contents, got[m.name], m.name)
	}

	reloaded, issues, err := Load(exported, nil)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Equal(t, feed.TableNames(), reloaded.TableNames())
	for _, name := range feed.TableNames() {
		want, _ := feed.Table(name)
		have, _ := reloaded.Table(name)
		assert.True(t, want.Equal(have), name)
	}
}

func TestRepeatedExportIsIdentical(t *testing.T) {
	feed := loadSample(t)

	first, err := Export(feed)
	require.NoError(t, err)
	second, err := Export(feed)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
}

func TestDatesExportAsText(t *testing.T) {
	feed := NewFeed()
	require.NoError(t, InsertRow(feed, "calendar_dates", Row{
		"service_id":     StringValue("WE"),
		"date":           StringValue("20240115"),
		"exception_type": NumberValue(1),
	}))
	require.NoError(t, feed.CoerceDates("calendar_dates", "date"))

	dates, _ := feed.Table("calendar_dates")
	require.Equal(t, KindDate, dates.Value(0, "date").Kind())

	exported, err := Export(feed)
	require.NoError(t, err)
	assert.Equal(t, "date,exception_type,service_id\n20240115,1,WE\n", readArchive(t, exported)["calendar_dates.txt"])
}

func TestSingleColumnNullRowsRoundTrip(t *testing.T) {
	notes := "note\nA\n\"\"\nB\n"
	members := withMember(sampleFeed, member{"notes.txt", notes})

	feed, issues, err := Load(buildArchive(t, members), nil)
	require.NoError(t, err)
	require.Empty(t, issues)
	before, _ := feed.Table("notes")
	require.Equal(t, 3, before.Len())
	assert.True(t, before.Value(1, "note").IsNull())

	exported, err := Export(feed)
	require.NoError(t, err)
	assert.Equal(t, notes, readArchive(t, exported)["notes.txt"])

	reloaded, _, err := Load(exported, nil)
	require.NoError(t, err)
	after, _ := reloaded.Table("notes")
	assert.True(t, before.Equal(after))
}

func TestPreservesUnknownFiles(t *testing.T) {
	members := append(slices.Clone(sampleFeed),
		member{"something_unknown.txt", "some,columns\nsome,values\n"},
		member{"unknown_other_format.json", "{}\n"},
	)

	feed, _, err := Load(buildArchive(t, members), &LoadOpts{KeepOtherFiles: true})
	require.NoError(t, err, "load")

	exported, err := Export(feed)
	require.NoError(t, err, "export")

	got := readArchive(t, exported)
	require.Equal(t, "some,columns\nsome,values\n", got["something_unknown.txt"])
	require.Equal(t, "{}\n", got["unknown_other_format.json"])
}

func TestEditingSession(t *testing.T) {
	feed := loadSample(t)

	nav, err := NewNavigator(feed)
	require.NoError(t, err)
	require.Equal(t, []string{"T1", "T2"}, nav.TripIDs("R1"))
	stops := nav.StopsForStopTimes(nav.StopTimesByTrip("T1"))
	require.Equal(t, 2, stops.Len())

	err = AddStop(feed, StopInput{ID: "99", Name: "New Stop", Lat: "36.5", Lon: "-117.0"})
	require.NoError(t, err)

	exported, err := Export(feed)
	require.NoError(t, err)

	reloaded, issues, err := Load(exported, nil)
	require.NoError(t, err)
	require.Empty(t, issues)

	reloadedStops, _ := reloaded.Table("stops")
	require.Equal(t, 5, reloadedStops.Len())
	last := reloadedStops.Row(reloadedStops.Len() - 1)
	assert.Equal(t, "99", last["stop_id"].String())
	assert.Equal(t, "New Stop", last["stop_name"].String())
	assert.True(t, last["platform_code"].IsNull())

	for _, name := range []string{"routes", "trips", "stop_times", "shapes"} {
		want, _ := feed.Table(name)
		have, _ := reloaded.Table(name)
		assert.True(t, want.Equal(have), name)
	}
}

func readArchive(t *testing.T, archive []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	out := make(map[string]string)
	for _, file := range r.File {
		f, err := file.Open()
		require.NoError(t, err)
		contents, err := io.ReadAll(f)
		require.NoError(t, err)
		_ = f.Close()
		out[file.Name] = string(contents)
	}
	return out
}

func assertGTFSEqual(t *testing.T, expected, actual []byte) {
	t.Helper()

	expectedZip, err := zip.NewReader(bytes.NewReader(expected), int64(len(expected)))
	if err != nil {
		panic(err)
	}
	actualZip, err := zip.NewReader(bytes.NewReader(actual), int64(len(actual)))
	if err != nil {
		panic(err)
	}

	var expectedFiles []string
	for _, entry := range expectedZip.File {
		expectedFiles = append(expectedFiles, entry.Name)
	}
	var actualFiles []string
	for _, entry := range actualZip.File {
		actualFiles = append(actualFiles, entry.Name)
	}

	var removedFiles []string
	for _, file := range expectedFiles {
		if !slices.Contains(actualFiles, file) {
			removedFiles = append(removedFiles, file)
		}
	}
	slices.Sort(removedFiles)
	var addedFiles []string
	for _, file := range actualFiles {
		if !slices.Contains(expectedFiles, file) {
			addedFiles = append(addedFiles, file)
		}
	}
	slices.Sort(addedFiles)
	var filesToCheck []string
	for _, file := range actualFiles {
		if !slices.Contains(removedFiles, file) && !slices.Contains(addedFiles, file) {
			filesToCheck = append(filesToCheck, file)
		}
	}
	slices.Sort(filesToCheck)

	var out strings.Builder

	if len(addedFiles) > 0 || len(removedFiles) > 0 {
		t.Fail()
	}
	for _, name := range addedFiles {
		fmt.Fprintf(&out, "ADDED FILE %s\n", name)
	}
	for _, name := range removedFiles {
		fmt.Fprintf(&out, "REMOVED FILE %s\n", name)
	}

	for _, file := range filesToCheck {
		expectedF, err := expectedZip.Open(file)
		if err != nil {
			panic(err)
		}
		actualF, err := actualZip.Open(file)
		if err != nil {
			panic(err)
		}

		var expectedContent []byte
		var actualContent []byte
		if strings.HasSuffix(file, tableSuffix) {
			expectedContent, err = normalizeCSV(expectedF)
			if err != nil {
				panic(err)
			}
			actualContent, err = normalizeCSV(actualF)
			if err != nil {
				panic(err)
			}
		} else {
			expectedContent, err = io.ReadAll(expectedF)
			if err != nil {
				panic(err)
			}
			actualContent, err = io.ReadAll(actualF)
			if err != nil {
				panic(err)
			}
		}

		edits := myers.ComputeEdits(span.URIFromPath(file), string(expectedContent), string(actualContent))
		if len(edits) > 0 {
			t.Fail()
			fmt.Fprint(&out, gotextdiff.ToUnified("expected/"+file, "actual/"+file, string(expectedContent), edits))
		}
	}

	if out.Len() > 0 {
		t.Log("archives differ\n", out.String())
	}
}

// normalizeCSV sorts columns so files that differ only in column order compare
// equal.
func normalizeCSV(input io.Reader) ([]byte, error) {
	r := csv.NewReader(input)
	r.FieldsPerRecord = -1

	var out bytes.Buffer
	w := csv.NewWriter(&out)

	srcHeader, err := r.Read()
	if err != nil {
		return nil, err
	}

	headerOccurrences := make(map[string]int)
	for _, col := range srcHeader {
		headerOccurrences[col]++
	}
	for _, count := range headerOccurrences {
		if count > 1 {
			return nil, errors.New("normalizeCSV doesn't currently support duplicated column names")
		}
	}

	header := slices.Clone(srcHeader)
	slices.Sort(header)

	headerSort := make([]int, len(srcHeader))
	for srcI, col := range srcHeader {
		headerSort[srcI] = slices.Index(header, col)
	}

	if err := w.Write(header); err != nil {
		return nil, err
	}

	for {
		srcRow, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		row := make([]string, len(header))
		for srcI := range srcRow {
			row[headerSort[srcI]] = srcRow[srcI]
		}

		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return out.Bytes(), w.Error()
}

func TestHelperNormalizeCSV(t *testing.T) {
	sample := "a,c,b\n1,3,2\n1,0,1"
	expected := "a,b,c\n1,2,3\n1,1,0\n"

	got, err := normalizeCSV(bytes.NewReader([]byte(sample)))
	require.NoError(t, err)
	assert.Equal(t, expected, string(got))
}

func TestHelperAssertGTFSEqual(t *testing.T) {
	archive := buildArchive(t, sampleFeed)
	assertGTFSEqual(t, archive, archive)
}
