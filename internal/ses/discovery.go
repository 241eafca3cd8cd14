package ses

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sigreer/esesgod/internal/cache"
)

var (
	sgDeviceRe = regexp.MustCompile(`(/dev/sg\d+)\s*$`)
	hctlRe     = regexp.MustCompile(`^\[(\d+:\d+:\d+:\d+)\]`)

	devices     *cache.Cache[[]*EnclosureSES]
	devicesOnce sync.Once
)

func deviceCache() *cache.Cache[[]*EnclosureSES] {
	devicesOnce.Do(func() {
		devices = cache.New[[]*EnclosureSES]()
	})
	return devices
}

// DiscoverSESDevices finds all SES-capable enclosure devices
// Parses output from: lsscsi -g
func DiscoverSESDevices(ctx context.Context) ([]*EnclosureSES, error) {
	c := deviceCache()
	cacheKey := "ses:devices"

	if cached, ok := c.Get(cacheKey); ok {
		return cached, nil
	}

	if _, err := lookPath("lsscsi"); err != nil {
		return nil, ErrLsscsiNotInstalled
	}

	out, err := runCommand(ctx, "lsscsi", "-g")
	if err != nil {
		return nil, fmt.Errorf("lsscsi failed: %w", err)
	}

	enclosures := ParseLsscsi(string(out))

	// Hardware topology rarely changes
	if len(enclosures) > 0 {
		c.Set(cacheKey, enclosures, cache.TTLDevices)
	}

	return enclosures, nil
}

// ParseLsscsi extracts enclosure lines from lsscsi -g output.
func ParseLsscsi(out string) []*EnclosureSES {
	var enclosures []*EnclosureSES
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(strings.ToLower(line), "enclosu") {
			continue
		}
		enc, err := parseLsscsiEnclosureLine(line)
		if err != nil {
			continue
		}
		enclosures = append(enclosures, enc)
	}
	return enclosures
}

// parseLsscsiEnclosureLine parses a single lsscsi output line for an enclosure
func parseLsscsiEnclosureLine(line string) (*EnclosureSES, error) {
	// Example: [6:0:24:0]   enclosu EMC      ESES Enclosure   0001  -         /dev/sg23
	//          [H:C:T:L]    type    vendor   product          rev   block     generic
	sgMatches := sgDeviceRe.FindStringSubmatch(line)
	if len(sgMatches) < 2 {
		return nil, errors.New("no sg device found")
	}

	enc := &EnclosureSES{
		SGDevice: sgMatches[1],
	}
	if m := hctlRe.FindStringSubmatch(strings.TrimSpace(line)); len(m) == 2 {
		enc.HCTL = m[1]
	}

	fields := strings.Fields(line)
	for i, f := range fields {
		if strings.ToLower(f) != "enclosu" {
			continue
		}
		// product may contain spaces; revision is the field before "-"
		rest := fields[i+1:]
		if len(rest) > 0 {
			enc.Vendor = rest[0]
		}
		end := len(rest)
		for j, r := range rest {
			if r == "-" || strings.HasPrefix(r, "/dev/") {
				end = j
				break
			}
		}
		if end >= 3 {
			enc.Product = strings.Join(rest[1:end-1], " ")
			enc.Revision = rest[end-1]
		} else if end == 2 {
			enc.Product = rest[1]
		}
		break
	}

	return enc, nil
}

// FindEnclosure returns the enclosure with the given sg device.
func FindEnclosure(enclosures []*EnclosureSES, sgDevice string) (*EnclosureSES, error) {
	for _, enc := range enclosures {
		if enc.SGDevice == sgDevice {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEnclosureNotFound, sgDevice)
}
