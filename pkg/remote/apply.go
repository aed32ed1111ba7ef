package remote

// Controller is the trial surface the protocol drives.
type Controller interface {
	Running() bool
	Start()
	Stop()
	SetDifficultyIndex(i int) bool
}

// Result reports what Apply did.
type Result struct {
	Applied bool // the command changed state
	Exit    bool // the application should terminate
}

// Apply executes cmd against c, honoring the protocol preconditions.
// Commands issued in the wrong state are ignored. Apply must run on the
// goroutine that owns c.
func Apply(cmd Command, c Controller) Result {
	switch cmd.Kind {
	case CmdStart:
		if c.Running() {
			return Result{}
		}
		c.Start()
		return Result{Applied: true}

	case CmdStop:
		if !c.Running() {
			return Result{}
		}
		c.Stop()
		return Result{Applied: true}

	case CmdLambda:
		if c.Running() {
			return Result{}
		}
		return Result{Applied: c.SetDifficultyIndex(cmd.Index)}

	case CmdExit:
		applied := false
		if c.Running() {
			c.Stop()
			applied = true
		}
		return Result{Applied: applied, Exit: true}
	}
	return Result{}
}
