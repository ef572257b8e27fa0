package launchersdk

// stagingInfix marks partially downloaded files. Inventory scans ignore
// anything matching StagingPattern.
const (
	stagingInfix   = ".launcher.tmp."
	StagingPattern = "**/*" + stagingInfix + "*"
)

type DownloadJob struct {
	URL  string // url to download from
	Dest string // absolute file path to write

	// ExpectedDigest is checked against the streamed bytes before the file
	// replaces Dest. Empty skips the check.
	ExpectedDigest string
}

type DownloadResult struct {
	Bytes  int64
	Digest string // sha256 of the bytes written
}
