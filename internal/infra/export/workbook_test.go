package export

import (
	"bytes"
	"testing"
	"time"

	"qualification_reminder/internal/domain/qualification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestQuarterlyWorkbook(t *testing.T) {
	rows := []qualification.ReminderRow{
		{
			Row: qualification.Row{
				StaffID:     "12345",
				StaffName:   "CHAN Tai Man",
				Code:        "A",
				Title:       "First Aid",
				FirstObtain: qualification.NewDate(2020, time.March, 1),
			},
			ExpiryDate:   qualification.NewDate(2025, time.May, 15),
			Refresher:    qualification.RefresherNotApplicable,
			PracticeDone: "2",
		},
	}

	data, err := QuarterlyWorkbook(rows)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	got, err := file.GetRows(file.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, quarterlyHeader, got[0])
	assert.Equal(t, []string{"12345", "CHAN Tai Man", "A", "First Aid", "01/03/2020", "", "15/05/2025", "2", "-"}, got[1])
}
