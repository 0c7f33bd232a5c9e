package filter

import (
	"fmt"

	"github.com/bgpfix/bgpfix/af"
)

func (e *Expr) afParse() error {
	// this supports the == operator only
	if e.Op != OP_EQ {
		return ErrOp
	} else if e.Idx != nil {
		return ErrIndex
	}

	// check value type
	switch v := e.Val.(type) {
	case af.AFI, af.SAFI, af.AF:
		// all good

	case string:
		var as af.AF
		err := as.FromJSON([]byte(v))
		if err == nil {
			e.Val = as
			break
		}

		afi, err := af.AFIString(v)
		if err == nil {
			e.Val = afi
			break
		}

		sf, err := af.SAFIString(v)
		if err == nil {
			e.Val = sf
			break
		}

		return fmt.Errorf("invalid AFI/SAFI value: %s", v)

	case int:
		if v < 0 || v > 0xffff {
			return fmt.Errorf("invalid AFI value: %d", v)
		}
		e.Val = af.AFI(v)

	default:
		return fmt.Errorf("invalid value: %v", v)
	}

	return nil
}

func (e *Expr) afEval(ev *Eval) bool {
	as := ev.Msg.Update.AfiSafi()

	switch v := e.Val.(type) {
	case af.AFI:
		return as.Afi() == v
	case af.SAFI:
		return as.Safi() == v
	case af.AF:
		return as == v
	}

	panic("unreachable")
}
