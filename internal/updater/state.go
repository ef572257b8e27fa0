package updater

// State is a phase of one sync run. A run moves forward through
// Idle, BuildingInventory, FetchingManifest, Diffing, Downloading and Done,
// skipping Downloading when nothing changed. Failed is only entered from
// FetchingManifest.
type State int

const (
	StateIdle State = iota
	StateBuildingInventory
	StateFetchingManifest
	StateDiffing
	StateDownloading
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateBuildingInventory: "building_inventory",
	StateFetchingManifest:  "fetching_manifest",
	StateDiffing:           "diffing",
	StateDownloading:       "downloading",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether a run has finished in s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Status is what the end user is told about a finished run.
type Status string

const (
	StatusUpToDate Status = "up_to_date"
	StatusUpdated  Status = "updated"
	StatusFailed   Status = "failed"
)
