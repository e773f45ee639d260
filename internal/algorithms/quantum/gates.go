package quantum

import "math"

var sqrtHalf = 1 / math.Sqrt2

// Fixed gates by name.
var (
	GateI = Gate{{1, 0}, {0, 1}}
	GateX = Gate{{0, 1}, {1, 0}}
	GateY = Gate{{0, -1i}, {1i, 0}}
	GateZ = Gate{{1, 0}, {0, -1}}
	GateH = Gate{{complex(sqrtHalf, 0), complex(sqrtHalf, 0)}, {complex(sqrtHalf, 0), complex(-sqrtHalf, 0)}}
	GateS = Gate{{1, 0}, {0, 1i}}
	GateT = Gate{{1, 0}, {0, complex(sqrtHalf, sqrtHalf)}}

	GateCNOT = Gate{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}
	GateCZ = Gate{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, -1},
	}
	GateSWAP = Gate{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
)

func Rx(theta float64) Gate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return Gate{{complex(c, 0), complex(0, -s)}, {complex(0, -s), complex(c, 0)}}
}

func Ry(theta float64) Gate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return Gate{{complex(c, 0), complex(-s, 0)}, {complex(s, 0), complex(c, 0)}}
}

func Rz(theta float64) Gate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return Gate{{complex(c, -s), 0}, {0, complex(c, s)}}
}

var singleGates = map[string]Gate{
	"I": GateI, "X": GateX, "Y": GateY, "Z": GateZ, "H": GateH, "S": GateS, "T": GateT,
}

var rotations = map[string]func(float64) Gate{"Rx": Rx, "Ry": Ry, "Rz": Rz}

var twoQubitGates = map[string]Gate{"CNOT": GateCNOT, "CZ": GateCZ, "SWAP": GateSWAP}

// SingleQubitGate looks up a named 2×2 gate. Rotations need an angle.
func SingleQubitGate(name string, angle *float64) (Gate, bool) {
	if g, ok := singleGates[name]; ok {
		return g, true
	}
	if rot, ok := rotations[name]; ok && angle != nil {
		return rot(*angle), true
	}
	return nil, false
}

func TwoQubitGate(name string) (Gate, bool) {
	g, ok := twoQubitGates[name]
	return g, ok
}
