package sdram

import "fmt"

// Command is an SDRAM command, as encoded by CS_N, RAS_N, CAS_N and WE_N.
type Command int

// The commands the controller issues.
const (
	CmdInhibit Command = iota
	CmdNOP
	CmdActivate
	CmdRead
	CmdWrite
	CmdPrecharge
	CmdRefresh
	CmdLoadMode
	CmdBurstTerminate
)

func (c Command) String() string {
	switch c {
	case CmdInhibit:
		return "INHIBIT"
	case CmdNOP:
		return "NOP"
	case CmdActivate:
		return "ACTIVATE"
	case CmdRead:
		return "READ"
	case CmdWrite:
		return "WRITE"
	case CmdPrecharge:
		return "PRECHARGE"
	case CmdRefresh:
		return "REFRESH"
	case CmdLoadMode:
		return "LOAD_MODE"
	case CmdBurstTerminate:
		return "BURST_TERMINATE"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

type encoding struct {
	rasN, casN, weN bool
}

var encodings = map[Command]encoding{
	CmdActivate:       {false, true, true},
	CmdRead:           {true, false, true},
	CmdWrite:          {true, false, false},
	CmdPrecharge:      {false, true, false},
	CmdRefresh:        {false, false, true},
	CmdLoadMode:       {false, false, false},
	CmdNOP:            {true, true, true},
	CmdBurstTerminate: {true, true, false},
}

// Address line 10 selects all banks for PRECHARGE and auto precharge for READ
// and WRITE.
const a10 uint16 = 1 << 10

// Pins are the SDRAM lines driven by the controller.
type Pins struct {
	CKE  bool
	CSN  bool
	RASN bool
	CASN bool
	WEN  bool
	BA   uint8
	Addr uint16
	DQ   uint16
	UDQM bool
	LDQM bool
}

// Command decodes the command on the pins.
func (p Pins) Command() Command {
	if p.CSN {
		return CmdInhibit
	}

	e := encoding{p.RASN, p.CASN, p.WEN}
	for cmd, enc := range encodings {
		if enc == e {
			return cmd
		}
	}

	panic("unreachable")
}

// AllBanks returns true if a PRECHARGE applies to every bank.
func (p Pins) AllBanks() bool {
	return p.Addr&a10 != 0
}

// Drive returns the pins that issue a command. DQ and DQM are left for the
// caller to fill.
func Drive(cmd Command, bank uint8, addr uint16) Pins {
	if cmd == CmdInhibit {
		return Pins{CKE: true, CSN: true, RASN: true, CASN: true, WEN: true}
	}

	enc, ok := encodings[cmd]
	if !ok {
		panic(fmt.Sprintf("cannot drive %s", cmd))
	}

	return Pins{
		CKE:  true,
		RASN: enc.rasN,
		CASN: enc.casN,
		WEN:  enc.weN,
		BA:   bank & 0x3,
		Addr: addr & 0xFFF,
	}
}

// ModeRegister returns the LOAD MODE value for a burst length of one with the
// given CAS latency.
func ModeRegister(casLatency int) uint16 {
	return uint16(casLatency&0x7) << 4
}

// CASLatencyOf extracts the CAS latency from a LOAD MODE value.
func CASLatencyOf(mode uint16) int {
	return int(mode>>4) & 0x7
}
