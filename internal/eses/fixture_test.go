package eses_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
	"github.com/sigreer/esesgod/internal/ses/sestest"
)

// Group ids of the fixture configuration page.
const (
	gSlot = iota
	gPhy
	gConnA
	gExpA
	gLCCA
	gTempA
	gDisp2
	gDisp1
	gConnB
	gExpB
	gLCCB
	gTempB
	gPSA
	gCoolA
	gPSB
	gCoolB
	gChassis
	gTempChassis
	gESC
	gUPS
)

const (
	fixtureGen      = 7
	fixtureExpIndex = 14 // element index of the local expander
)

func testProfile() eses.Profile {
	return eses.Profile{
		Name:             "test-4",
		Slots:            4,
		Phys:             8,
		LCCs:             2,
		ExpandersPerLCC:  1,
		ConnectorsPerLCC: 2,
		PowerSupplies:    2,
		PSSubelements:    1,
		CoolingPerPS:     3,
		TempPerLCC:       2,
		TempOnChassis:    2,
		LCCsWithTemp:     2,
		TwoDigitDisplays: 1,
		OneDigitDisplays: 1,
		DisplayChars:     3,
		SPS:              1,
		SSC:              1,
	}
}

func testConfigPage() []byte {
	subs := []ses.Subenclosure{
		{ID: 0, Type: ses.SubenclLCC, Side: 0, Vendor: "EMC", Product: "ESES LCC A"},
		{ID: 1, Type: ses.SubenclLCC, Side: 1, Vendor: "EMC", Product: "ESES LCC B"},
		{ID: 2, Type: ses.SubenclPowerSupply, Side: 0, Vendor: "EMC", Product: "PS A"},
		{ID: 3, Type: ses.SubenclPowerSupply, Side: 1, Vendor: "EMC", Product: "PS B"},
		{ID: 4, Type: ses.SubenclChassis, Side: 0, Vendor: "EMC", Product: "CHASSIS"},
	}
	hdrs := []sestest.TypeHeader{
		gSlot:        {ElementType: ses.ElemArrayDevSlot, NumPossible: 4, SubenclosureID: 0},
		gPhy:         {ElementType: ses.ElemExpanderPhy, NumPossible: 8, SubenclosureID: 0},
		gConnA:       {ElementType: ses.ElemSASConnector, NumPossible: 2, SubenclosureID: 0},
		gExpA:        {ElementType: ses.ElemSASExpander, NumPossible: 1, SubenclosureID: 0},
		gLCCA:        {ElementType: ses.ElemEnclosure, NumPossible: 1, SubenclosureID: 0},
		gTempA:       {ElementType: ses.ElemTempSensor, NumPossible: 1, SubenclosureID: 0},
		gDisp2:       {ElementType: ses.ElemDisplay, NumPossible: 2, SubenclosureID: 0},
		gDisp1:       {ElementType: ses.ElemDisplay, NumPossible: 1, SubenclosureID: 0},
		gConnB:       {ElementType: ses.ElemSASConnector, NumPossible: 2, SubenclosureID: 1},
		gExpB:        {ElementType: ses.ElemSASExpander, NumPossible: 1, SubenclosureID: 1},
		gLCCB:        {ElementType: ses.ElemEnclosure, NumPossible: 1, SubenclosureID: 1},
		gTempB:       {ElementType: ses.ElemTempSensor, NumPossible: 1, SubenclosureID: 1},
		gPSA:         {ElementType: ses.ElemPowerSupply, NumPossible: 1, SubenclosureID: 2},
		gCoolA:       {ElementType: ses.ElemCooling, NumPossible: 2, SubenclosureID: 2},
		gPSB:         {ElementType: ses.ElemPowerSupply, NumPossible: 1, SubenclosureID: 3},
		gCoolB:       {ElementType: ses.ElemCooling, NumPossible: 2, SubenclosureID: 3},
		gChassis:     {ElementType: ses.ElemEnclosure, NumPossible: 1, SubenclosureID: 4},
		gTempChassis: {ElementType: ses.ElemTempSensor, NumPossible: 1, SubenclosureID: 4},
		gESC:         {ElementType: ses.ElemEscElectronic, NumPossible: 1, SubenclosureID: 4},
		gUPS:         {ElementType: ses.ElemUPS, NumPossible: 1, SubenclosureID: 4},
	}
	return sestest.ConfigPage(fixtureGen, subs, hdrs)
}

func testConfig(t *testing.T) *ses.Configuration {
	t.Helper()
	cfg, err := ses.ParseConfigPage(testConfigPage())
	require.NoError(t, err)
	require.Len(t, cfg.Groups, gUPS+1)
	return cfg
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	enc   *eses.Enclosure
	rec   *lifecycle.Recorder
	store *edal.Store
	clock *fakeClock
	cfg   *ses.Configuration
}

type fixtureOpt func(f *fixture, o *eses.Options)

// wrapStore hands the enclosure a wrapper around the fixture store.
func wrapStore(wrap func(*edal.Store) eses.Store) fixtureOpt {
	return func(f *fixture, o *eses.Options) { o.Store = wrap(f.store) }
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()
	return newFixtureProfile(t, testProfile(), opts...)
}

func newFixtureProfile(t *testing.T, p eses.Profile, opts ...fixtureOpt) *fixture {
	t.Helper()
	cfg := testConfig(t)
	f := &fixture{
		rec:   lifecycle.NewRecorder(nil),
		store: edal.New(p.Counts()),
		clock: &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		cfg:   cfg,
	}
	o := eses.Options{
		Now:       f.clock.Now,
		Profile:   &p,
		Store:     f.store,
		Scheduler: f.rec,
	}
	for _, fn := range opts {
		fn(f, &o)
	}
	enc, err := eses.New("/dev/sg9", cfg, o)
	require.NoError(t, err)
	require.NoError(t, enc.Seed(eses.DefaultTopology(cfg, p)))
	f.enc = enc
	return f
}

// okPage reports every element present and healthy.
func (f *fixture) okPage() *sestest.StatusPage {
	p := sestest.NewStatusPage(f.cfg.Groups, fixtureGen)
	for id, g := range f.cfg.Groups {
		for elem := uint8(0); elem <= g.NumPossibleElements; elem++ {
			p.SetCode(id, elem, ses.StatusOK)
		}
	}
	for elem := uint8(1); elem <= 8; elem++ {
		// link ready, phy ready
		p.Set(gPhy, elem, sestest.Rec(byte(ses.StatusOK), fixtureExpIndex, elem-1, 0xC0))
	}
	p.Set(gTempA, 0, sestest.Rec(byte(ses.StatusOK), 0, 45, 0))
	p.Set(gTempA, 1, sestest.Rec(byte(ses.StatusOK), 0, 47, 0))
	return p
}

func (f *fixture) decode(t *testing.T, p *sestest.StatusPage) *eses.PassResult {
	t.Helper()
	res, err := f.enc.DecodeStatusPage(t.Context(), p.Bytes())
	require.NoError(t, err)
	return res
}

func (f *fixture) getBool(t *testing.T, c edal.ComponentType, idx int, a edal.Attribute) bool {
	t.Helper()
	v, err := f.store.GetBool(c, idx, a)
	require.NoError(t, err)
	return v
}

func (f *fixture) getU8(t *testing.T, c edal.ComponentType, idx int, a edal.Attribute) uint8 {
	t.Helper()
	v, err := f.store.GetU8(c, idx, a)
	require.NoError(t, err)
	return v
}

var errInjected = errors.New("injected store failure")

// failingStore fails SetBool for one (component, index, attribute).
type failingStore struct {
	*edal.Store
	c    edal.ComponentType
	idx  int
	attr edal.Attribute
}

func (s *failingStore) SetBool(c edal.ComponentType, idx int, a edal.Attribute, v bool) (edal.Status, error) {
	if c == s.c && idx == s.idx && a == s.attr {
		return edal.Unchanged, errInjected
	}
	return s.Store.SetBool(c, idx, a, v)
}
