package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test. It stands in for
// t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestHandleMessageAppendsLogLine(t *testing.T) {
	chdir(t, t.TempDir())

	ev := RequestApprovedEvent{
		RequestID:     7,
		EventID:       3,
		EventName:     "Friday Night",
		EventSlug:     "friday-night",
		Title:         "Around the World",
		Artist:        "Daft Punk",
		RequesterName: "ava",
		VoteCount:     12,
		ApprovedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(filepath.Join("logs", "approved.log"))
	require.NoError(t, err)
	line := string(data)
	require.Contains(t, line, "request_id=7")
	require.Contains(t, line, `song="Around the World" by "Daft Punk"`)
	require.Contains(t, line, ev.ApprovedAt)
	require.Contains(t, line, "votes=12")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	chdir(t, t.TempDir())
	require.Error(t, handleMessage([]byte("not json")))
}
