package csvsource

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FileMeta is the session identity encoded in an export file name.
type FileMeta struct {
	BatteryID string
	TestID    string
	SoC       int
}

// ParseFileName decodes <prefix>_<battery>_<test>_<soc>[...].csv.
// The test id keeps the SoC suffix, e.g. HK_B1_T1_50.csv gives test T1_50 at 50%.
func ParseFileName(name string) (FileMeta, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		return FileMeta{}, fmt.Errorf("csvsource: file name %q: want <prefix>_<battery>_<test>_<soc>", base)
	}
	soc, err := strconv.Atoi(parts[3])
	if err != nil {
		return FileMeta{}, fmt.Errorf("csvsource: file name %q: soc %q: %w", base, parts[3], err)
	}
	if parts[1] == "" || parts[2] == "" {
		return FileMeta{}, fmt.Errorf("csvsource: file name %q: empty battery or test", base)
	}
	return FileMeta{
		BatteryID: parts[1],
		TestID:    parts[2] + "_" + parts[3],
		SoC:       soc,
	}, nil
}
