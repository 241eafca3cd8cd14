package ses

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sigreer/esesgod/internal/cache"
)

// runCommand and lookPath are replaced in tests.
var lookPath = exec.LookPath

var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// CheckSgSesInstalled verifies sg_ses is available
func CheckSgSesInstalled() error {
	if _, err := lookPath("sg_ses"); err != nil {
		return ErrSgSesNotInstalled
	}
	return nil
}

// ReadPage fetches a raw diagnostic page from sgDevice.
// Uses: sudo sg_ses --page=0xNN -rr /dev/sg<N>
func ReadPage(ctx context.Context, sgDevice string, code uint8) ([]byte, error) {
	c := cache.Pages()
	cacheKey := fmt.Sprintf("%s:0x%02x", sgDevice, code)
	if cached, ok := c.Get(cacheKey); ok {
		return cached, nil
	}

	if err := CheckSgSesInstalled(); err != nil {
		return nil, err
	}

	out, err := runCommand(ctx, "sudo", "sg_ses",
		fmt.Sprintf("--page=0x%02x", code),
		"-rr", // raw binary on stdout
		sgDevice,
	)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.ToLower(string(exitErr.Stderr))
			if strings.Contains(stderr, "permission denied") ||
				strings.Contains(stderr, "operation not permitted") {
				return nil, ErrPermissionDenied
			}
			return nil, fmt.Errorf("sg_ses page 0x%02x failed: %s: %w", code, strings.TrimSpace(stderr), err)
		}
		return nil, fmt.Errorf("sg_ses page 0x%02x failed: %w", code, err)
	}

	if _, err := ExpectPage(out, code); err != nil {
		return nil, err
	}

	ttl := cache.TTLStatus
	if code == PageConfiguration {
		ttl = cache.TTLConfig
	}
	c.Set(cacheKey, out, ttl)
	return out, nil
}

// ReadConfiguration fetches and decodes the configuration page.
func ReadConfiguration(ctx context.Context, sgDevice string) (*Configuration, error) {
	buf, err := ReadPage(ctx, sgDevice, PageConfiguration)
	if err != nil {
		return nil, err
	}
	return ParseConfigPage(buf)
}

// InvalidatePages drops every cached page of sgDevice, e.g. after the
// generation code changed.
func InvalidatePages(sgDevice string) {
	c := cache.Pages()
	for _, code := range []uint8{
		PageConfiguration, PageEnclosureStatus, PageThresholdIn,
		PageAddlElemStatus, PageDownloadStatus, PageEmcEnclStatus, PageEmcStatistics,
	} {
		c.Delete(fmt.Sprintf("%s:0x%02x", sgDevice, code))
	}
}
