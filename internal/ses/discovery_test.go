package ses_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/cache"
	"github.com/sigreer/esesgod/internal/ses"
	"github.com/sigreer/esesgod/internal/ses/sestest"
)

const lsscsiOut = `[0:0:0:0]    disk    ATA      Samsung SSD 860  4B6Q  /dev/sda   /dev/sg0
[6:0:24:0]   enclosu EMC      ESES Enclosure   0001  -          /dev/sg23
[6:0:25:0]   disk    SEAGATE  ST4000NM0023     0004  /dev/sdb   /dev/sg24
[7:0:9:0]    enclosu SMC      SC826-P          0001  -          /dev/sg31
`

func TestParseLsscsi(t *testing.T) {
	encs := ses.ParseLsscsi(lsscsiOut)
	require.Len(t, encs, 2)
	assert.Equal(t, &ses.EnclosureSES{
		SGDevice: "/dev/sg23", Vendor: "EMC", Product: "ESES Enclosure", Revision: "0001", HCTL: "6:0:24:0",
	}, encs[0])
	assert.Equal(t, "SC826-P", encs[1].Product)

	enc, err := ses.FindEnclosure(encs, "/dev/sg31")
	require.NoError(t, err)
	assert.Equal(t, "SMC", enc.Vendor)

	_, err = ses.FindEnclosure(encs, "/dev/sg99")
	assert.ErrorIs(t, err, ses.ErrEnclosureNotFound)
}

func stubTools(t *testing.T, run func(name string, args ...string) ([]byte, error)) {
	t.Helper()
	origRun, origLook := *ses.RunCommand, *ses.LookPath
	*ses.RunCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
		return run(name, args...)
	}
	*ses.LookPath = func(string) (string, error) { return "/usr/bin/true", nil }
	t.Cleanup(func() {
		*ses.RunCommand, *ses.LookPath = origRun, origLook
		cache.Pages().Clear()
	})
}

func TestReadPage(t *testing.T) {
	page := sestest.NewStatusPage(testGroups, 3).Bytes()
	calls := 0
	stubTools(t, func(name string, args ...string) ([]byte, error) {
		calls++
		assert.Equal(t, "sudo", name)
		assert.Equal(t, []string{"sg_ses", "--page=0x02", "-rr", "/dev/sg23"}, args)
		return page, nil
	})

	got, err := ses.ReadPage(context.Background(), "/dev/sg23", ses.PageEnclosureStatus)
	require.NoError(t, err)
	assert.Equal(t, page, got)

	// second read is served from the cache
	_, err = ses.ReadPage(context.Background(), "/dev/sg23", ses.PageEnclosureStatus)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	ses.InvalidatePages("/dev/sg23")
	_, err = ses.ReadPage(context.Background(), "/dev/sg23", ses.PageEnclosureStatus)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestReadPageErrors(t *testing.T) {
	stubTools(t, func(string, ...string) ([]byte, error) {
		return nil, &exec.ExitError{Stderr: []byte("open /dev/sg23: Permission denied")}
	})
	_, err := ses.ReadPage(context.Background(), "/dev/sg23", ses.PageEnclosureStatus)
	assert.ErrorIs(t, err, ses.ErrPermissionDenied)

	*ses.RunCommand = func(context.Context, string, ...string) ([]byte, error) {
		return sestest.NewStatusPage(testGroups, 3).Bytes(), nil
	}
	_, err = ses.ReadPage(context.Background(), "/dev/sg23", ses.PageEmcStatistics)
	assert.ErrorIs(t, err, ses.ErrUnexpectedPage)

	*ses.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	_, err = ses.ReadPage(context.Background(), "/dev/sg23", ses.PageConfiguration)
	assert.ErrorIs(t, err, ses.ErrSgSesNotInstalled)
}
