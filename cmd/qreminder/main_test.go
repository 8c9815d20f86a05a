package main

import (
	"bytes"
	"testing"
	"time"

	"qualification_reminder/internal/domain/run"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]run.Kind{
		"":          "",
		"enquiry":   run.KindEnquiry,
		"FETCH":     run.KindEnquiry,
		"daily":     run.KindDailyReminder,
		"Quarterly": run.KindQuarterlyReminder,
	} {
		got, err := parseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseKind("weekly")
	assert.Error(t, err)
}

func TestRequireDatabase(t *testing.T) {
	err := requireDatabase("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	assert.NoError(t, requireDatabase("postgres://localhost/qreminder"))
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printHistory(cmd, nil)
	assert.Equal(t, "No routine runs recorded.\n", buf.String())

	buf.Reset()
	r := run.New(run.KindDailyReminder, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	r.Sent = 3
	r.Failures = []string{"a@example.com", "b@example.com"}
	r.Finish(nil)
	printHistory(cmd, []*run.Run{r})

	out := buf.String()
	assert.Contains(t, out, "STARTED")
	assert.Contains(t, out, "DAILY_REMINDER")
	assert.Contains(t, out, "02/06/2025")
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "a@example.com,b@example.com")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "fetch", "report", "remind", "quarterly", "history"} {
		assert.Contains(t, names, want)
	}

	f := quarterlyCmd.Flags().Lookup("quarter")
	require.NotNil(t, f)
	assert.NotNil(t, remindCmd.Flags().Lookup("dry-run"))
}
