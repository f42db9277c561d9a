// Package telemetry understands the distance/zone lines streamed by the cane
// firmware.
package telemetry

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Zone is the proximity class computed by the firmware.
type Zone string

const (
	ZoneSafe    Zone = "SAFE"
	ZoneWarning Zone = "WARNING"
	ZoneDanger  Zone = "DANGER"
)

// ParseZone normalises s into a Zone.
func ParseZone(s string) (Zone, bool) {
	switch z := Zone(strings.ToUpper(strings.TrimSpace(s))); z {
	case ZoneSafe, ZoneWarning, ZoneDanger:
		return z, true
	default:
		return "", false
	}
}

// Reading is one parsed sample. A split line ("DIST,42" or "ZONE,SAFE")
// fills only one of the two fields; HasDistance/HasZone tell which.
type Reading struct {
	DistanceCM  int  `json:"distance"`
	Zone        Zone `json:"zone"`
	HasDistance bool `json:"-"`
	HasZone     bool `json:"-"`
}

// Complete reports whether both distance and zone are set.
func (r Reading) Complete() bool {
	return r.HasDistance && r.HasZone
}

var combinedLine = regexp.MustCompile(`(?i)Distance:\s*(\d+)\s*cm\s*Zone:\s*(SAFE|WARNING|DANGER)`)

// Parse recognises "Distance: <n> cm Zone: <zone>" as well as the split
// "DIST,<n>" and "ZONE,<zone>" lines.
func Parse(line string) (Reading, bool) {
	line = strings.TrimSpace(line)

	if m := combinedLine.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Reading{}, false
		}
		zone, _ := ParseZone(m[2])
		return Reading{DistanceCM: n, Zone: zone, HasDistance: true, HasZone: true}, true
	}

	key, value, ok := strings.Cut(line, ",")
	if !ok {
		return Reading{}, false
	}
	switch strings.TrimSpace(key) {
	case "DIST":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return Reading{}, false
		}
		return Reading{DistanceCM: n, HasDistance: true}, true
	case "ZONE":
		zone, ok := ParseZone(value)
		if !ok {
			return Reading{}, false
		}
		return Reading{Zone: zone, HasZone: true}, true
	}
	return Reading{}, false
}

// Format renders r the way the firmware prints it.
func Format(r Reading) string {
	return fmt.Sprintf("Distance: %d cm Zone: %s", r.DistanceCM, r.Zone)
}

// ParseLog scans a serial monitor capture and returns every combined
// distance/zone sample in order. Other lines are skipped.
func ParseLog(r io.Reader) ([]Reading, error) {
	var readings []Reading
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		rd, ok := Parse(sc.Text())
		if ok && rd.Complete() {
			readings = append(readings, rd)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning log: %w", err)
	}
	return readings, nil
}
