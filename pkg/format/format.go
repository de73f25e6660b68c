package format

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"k8s.io/apimachinery/pkg/api/resource"
)

// CPU renders millicores the way Kubernetes quantities are written ("250m", "2")
func CPU(millicores int64) string {
	return resource.NewMilliQuantity(millicores, resource.DecimalSI).String()
}

// Bytes renders a byte count with binary units ("1.5 GiB")
func Bytes(b int64) string {
	if b < 0 {
		return "-" + humanize.IBytes(uint64(-b))
	}
	return humanize.IBytes(uint64(b))
}

// USD renders a dollar amount
func USD(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// SignedUSD renders a dollar delta with an explicit sign
func SignedUSD(v float64) string {
	switch {
	case math.Abs(v) < 0.005:
		return "$0.00"
	case v > 0:
		return fmt.Sprintf("+$%.2f", v)
	default:
		return fmt.Sprintf("-$%.2f", -v)
	}
}

// SignedInt renders an integer delta with an explicit sign
func SignedInt(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// Ratio divides part by whole, treating wholes below one as one
func Ratio(part, whole int64) float64 {
	if whole < 1 {
		whole = 1
	}
	return float64(part) / float64(whole)
}

// Percent renders a ratio as a whole percentage
func Percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// Count renders an integer with thousands separators
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Timestamp renders a log timestamp in local time
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
