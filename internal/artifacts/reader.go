package artifacts

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/bondlab/bondspread/internal/trace"
)

// ReadUniverse loads a universe CSV written by WriteUniverse.
func ReadUniverse(path string) ([]string, error) {
	rows, err := readCSV(path, 1)
	if err != nil {
		return nil, err
	}
	cusips := make([]string, len(rows))
	for i, row := range rows {
		cusips[i] = row[0]
	}
	return cusips, nil
}

// ReadCleanTrades loads a clean-trade CSV written by WriteCleanTrades.
// Unparseable numeric fields coerce to missing markers (NaN for price and
// volume, zero for the sequence number) rather than failing the row;
// later numeric comparisons drop rows missing critical fields.
func ReadCleanTrades(path string) ([]trace.TradeRecord, error) {
	rows, err := readCSV(path, len(cleanTradeHeader))
	if err != nil {
		return nil, err
	}

	records := make([]trace.TradeRecord, 0, len(rows))
	for i, row := range rows {
		date, err := parseDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tm, err := trace.ParseClock(row[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		seq, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			seq = 0
		}
		records = append(records, trace.TradeRecord{
			CUSIP:         row[0],
			ExecDate:      date,
			ExecTime:      tm,
			SeqNum:        seq,
			Price:         coerceFloat(row[4]),
			Volume:        coerceFloat(row[5]),
			Side:          row[6],
			Capacity:      row[7],
			Status:        row[8],
			SaleCondition: row[9],
			SubProduct:    row[10],
			Contra:        row[11],
		})
	}
	return records, nil
}

func coerceFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func readCSV(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil // drop header
}
