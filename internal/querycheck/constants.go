package querycheck

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	maxReportedFailures  = 10
)

// Chart ids queried by every check.
const (
	viewersChart = "viewers"
	annualChart  = "annual-attendance"
)

// Error codes the check treats as expected.
const (
	codeTeamNotFound = "team_not_found"
)

const dateLayout = "2006-01-02"
