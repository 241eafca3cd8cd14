package eses

import "github.com/sigreer/esesgod/internal/edal"

// Profile describes how many components of each kind an enclosure model
// carries and how element groups are bucketed into component indices.
// Counts that include an overall element say so.
type Profile struct {
	Name             string `yaml:"name" json:"name"`
	Slots            int    `yaml:"slots" json:"slots"`
	Phys             int    `yaml:"phys" json:"phys"`
	LCCs             int    `yaml:"lccs" json:"lccs"`
	ExpandersPerLCC  int    `yaml:"expanders_per_lcc" json:"expanders_per_lcc"`
	ConnectorsPerLCC int    `yaml:"connectors_per_lcc" json:"connectors_per_lcc"`

	PowerSupplies  int  `yaml:"power_supplies" json:"power_supplies"`
	PSSubelements  int  `yaml:"ps_subelements" json:"ps_subelements"`
	PSOverallSaved bool `yaml:"ps_overall_saved" json:"ps_overall_saved"`

	// cooling counts include the group's overall element
	CoolingPerPS     int `yaml:"cooling_per_ps" json:"cooling_per_ps"`
	CoolingOnChassis int `yaml:"cooling_on_chassis" json:"cooling_on_chassis"`
	ExternalCooling  int `yaml:"external_cooling" json:"external_cooling"`
	CoolingOnLCC     int `yaml:"cooling_on_lcc" json:"cooling_on_lcc"`

	// temperature counts include the group's overall element
	TempPerLCC    int `yaml:"temp_per_lcc" json:"temp_per_lcc"`
	TempOnChassis int `yaml:"temp_on_chassis" json:"temp_on_chassis"`
	LCCsWithTemp  int `yaml:"lccs_with_temp" json:"lccs_with_temp"`

	TwoDigitDisplays int `yaml:"two_digit_displays" json:"two_digit_displays"`
	OneDigitDisplays int `yaml:"one_digit_displays" json:"one_digit_displays"`
	DisplayChars     int `yaml:"display_chars" json:"display_chars"`

	SPS int `yaml:"sps" json:"sps"`
	SSC int `yaml:"ssc" json:"ssc"`
}

// Elements per display group.
const (
	elemsPerTwoDigitDisplay = 2
	elemsPerOneDigitDisplay = 1
	elemsPerExternalCooling = 2
)

// DefaultProfile is a 15 slot, dual LCC shelf.
func DefaultProfile() Profile {
	return Profile{
		Name:             "default-15",
		Slots:            15,
		Phys:             36,
		LCCs:             2,
		ExpandersPerLCC:  1,
		ConnectorsPerLCC: 10,
		PowerSupplies:    2,
		PSSubelements:    1,
		CoolingPerPS:     3,
		TempPerLCC:       2,
		TempOnChassis:    3,
		LCCsWithTemp:     2,
		TwoDigitDisplays: 1,
		OneDigitDisplays: 1,
		DisplayChars:     3,
		SSC:              1,
	}
}

func (p Profile) psSubelements() int {
	if p.PSSubelements <= 0 {
		return 1
	}
	return p.PSSubelements
}

// psPerSide is the number of power supply records kept per side.
func (p Profile) psPerSide() int {
	if p.PSOverallSaved {
		return p.psSubelements() + 1
	}
	return p.psSubelements()
}

// Counts returns how many records of each component type the attribute
// store needs.
func (p Profile) Counts() map[edal.ComponentType]int {
	return map[edal.ComponentType]int{
		edal.PowerSupply: p.PowerSupplies * p.psPerSide(),
		edal.Cooling: p.PowerSupplies*p.CoolingPerPS + p.CoolingOnChassis +
			p.ExternalCooling*elemsPerExternalCooling + p.CoolingOnLCC,
		edal.TempSensor:  p.LCCsWithTemp*p.TempPerLCC + p.TempOnChassis,
		edal.DriveSlot:   p.Slots,
		edal.ExpanderPhy: p.Phys,
		edal.Connector:   p.LCCs * p.ConnectorsPerLCC,
		edal.Expander:    p.LCCs * p.ExpandersPerLCC,
		edal.LCC:         p.LCCs,
		edal.Enclosure:   1,
		edal.Display:     p.TwoDigitDisplays*elemsPerTwoDigitDisplay + p.OneDigitDisplays*elemsPerOneDigitDisplay,
		edal.SPS:         p.SPS,
		edal.SSC:         p.SSC,
	}
}
