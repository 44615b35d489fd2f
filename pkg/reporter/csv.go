package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tantalor93/dnsmatrix/pkg/dnsbench"
)

// MissingAddress is exported in the matrix instead of an address of a failed or missing probe.
const MissingAddress = "-"

// MatrixHeader returns header row of the result matrix.
func MatrixHeader(domains []string) []string {
	header := make([]string, 0, 3+2*len(domains))
	header = append(header, "DNS Name", "Method", "Address/URL")
	for _, d := range domains {
		header = append(header, d+"_IP", d+"_Latency")
	}
	return header
}

// MatrixRow returns row of the result matrix for the summary, results are expected to be aligned to domains.
func MatrixRow(s Summary) []string {
	row := make([]string, 0, 3+2*len(s.Results))
	row = append(row, s.Method.Resolver, s.Method.Name(), s.Method.Address)
	for _, r := range s.Results {
		row = append(row, matrixAddress(r), strconv.FormatInt(matrixLatency(r), 10))
	}
	return row
}

// WriteCSV exports the result matrix, one row per summary with two columns per domain.
func WriteCSV(w io.Writer, domains []string, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MatrixHeader(domains)); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write(MatrixRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func matrixAddress(r dnsbench.Result) string {
	if !r.Success || r.Address == "" {
		return MissingAddress
	}
	return r.Address
}

func matrixLatency(r dnsbench.Result) int64 {
	if !r.Success {
		return dnsbench.FailedLatency
	}
	return r.LatencyMs
}
