package browser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/somafm/internal/channel"
	"github.com/jmylchreest/somafm/internal/testutil"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestListChannels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListChannels(&buf, testutil.SampleDirectory()))

	out := lines(buf.String())
	require.Len(t, out, 4)
	assert.Equal(t, "------------------------------", out[0])
	assert.Equal(t, "          Groove Salad : A nicely chilled plate of ambient/downtempo beats and grooves.", out[1])
	assert.True(t, strings.HasPrefix(out[2], "            Drone Zone : "))
	assert.True(t, strings.HasPrefix(out[3], "          Secret Agent : "))
}

func TestListChannels_LongTitleNotTruncated(t *testing.T) {
	dir := &channel.Directory{Channels: []channel.Channel{
		{Title: "A Title Longer Than Twenty Two", Description: "d"},
	}}

	var buf bytes.Buffer
	require.NoError(t, ListChannels(&buf, dir))
	assert.Equal(t, "A Title Longer Than Twenty Two : d", lines(buf.String())[1])
}

func TestShowStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ShowStats(&buf, testutil.SampleDirectory()))

	assert.Equal(t, []string{
		"------------------------------",
		"2301 : Secret Agent",
		"1520 : Groove Salad",
		" 874 : Drone Zone",
		"4695 : Total Listeners",
	}, lines(buf.String()))
}

func TestShowStats_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ShowStats(&buf, &channel.Directory{Channels: []channel.Channel{}}))

	assert.Equal(t, []string{
		"------------------------------",
		"   0 : Total Listeners",
	}, lines(buf.String()))
}

func TestRanked_StableForTies(t *testing.T) {
	dir := &channel.Directory{Channels: []channel.Channel{
		{Title: "first", Listeners: 5},
		{Title: "second", Listeners: 9},
		{Title: "third", Listeners: 5},
		{Title: "fourth", Listeners: 5},
	}}

	var titles []string
	for _, ch := range Ranked(dir) {
		titles = append(titles, ch.Title)
	}
	assert.Equal(t, []string{"second", "first", "third", "fourth"}, titles)
	assert.Equal(t, "first", dir.Channels[0].Title, "feed order is left untouched")
}

func TestRanked_TotalMatchesSum(t *testing.T) {
	dir := testutil.NewSampleDataGeneratorWithSeed(3).GenerateDirectory(40)

	sum := 0
	prev := -1
	for i, ch := range Ranked(dir) {
		if i > 0 {
			assert.LessOrEqual(t, int(ch.Listeners), prev)
		}
		prev = int(ch.Listeners)
		sum += int(ch.Listeners)
	}
	assert.Equal(t, dir.TotalListeners(), sum)
}

func TestShowChannel(t *testing.T) {
	dir := testutil.SampleDirectory()
	ch, err := dir.Find("Secret Agent")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ShowChannel(&buf, ch))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Secret Agent\n"))
	assert.Contains(t, out, "Listeners:   2301")
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "https://somafm.com/secretagent.pls")
	assert.Contains(t, out, "[1]")
}
