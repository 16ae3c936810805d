package host

// Flags select methods by calling convention and visibility.
type Flags int

const (
	Instance Flags = 1 << iota
	Static
	Public
	NonPublic
)

// DefaultFlags matches every instance method regardless of visibility.
const DefaultFlags = Instance | Public | NonPublic

func (f Flags) matches(m Flags) bool {
	if f&(Instance|Static) != 0 && f&m&(Instance|Static) == 0 {
		return false
	}
	if f&(Public|NonPublic) != 0 && f&m&(Public|NonPublic) == 0 {
		return false
	}
	return true
}
