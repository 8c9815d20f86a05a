package export

import (
	"fmt"

	"qualification_reminder/internal/domain/qualification"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

var quarterlyHeader = []string{
	"Staff ID", "Name", "Qualification Code", "Qualification", "First Obtain", "Last Refresh",
	"Expiry", "Practice Done", "Refresher",
}

// QuarterlyWorkbook renders quarterly reminder rows as an XLSX document.
func QuarterlyWorkbook(rows []qualification.ReminderRow) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	for i, h := range quarterlyHeader {
		if err := setCell(file, i, 1, h); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		values := []string{
			row.StaffID, row.StaffName, row.Code, row.Title,
			row.FirstObtain.String(), row.LastRefresh.String(), row.ExpiryDate.String(),
			row.PracticeDone, string(row.Refresher),
		}
		for c, v := range values {
			if err := setCell(file, c, r+2, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(file *excelize.File, col, row int, value string) error {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := file.SetCellValue(sheetName, name, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", name, err)
	}
	return nil
}
