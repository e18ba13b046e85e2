package core

// System stores system information.
type System struct {
	Admins        []string
	AssetID       string
	VaultAccount  string
	EngineAccount string
	Location      string
	Version       string
}

// IsAdmin is admin
func (s *System) IsAdmin(userID string) bool {
	if len(s.Admins) == 0 {
		return false
	}

	for _, a := range s.Admins {
		if a == userID {
			return true
		}
	}

	return false
}

// IsStaffAccount reports whether the id is one of the protocol's own
// custody accounts.
func (s *System) IsStaffAccount(userID string) bool {
	return userID == s.VaultAccount || userID == s.EngineAccount
}

// PauseKey is the property-store switch halting state-changing
// operations while set.
const PauseKey = "service_pause"

// SysVersion is the data schema version this binary understands.
// Workers refuse to start against a store migrated past it.
const SysVersion int64 = 1
