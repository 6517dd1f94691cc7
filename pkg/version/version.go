package version

import "fmt"

// AptrieVersion indicates what version of aptrie the binary belongs to
var AptrieVersion string

// GitCommit indicates which git commit the binary was built from
var GitCommit string

// String returns a pretty string concatenation of AptrieVersion and GitCommit
func String() string {
	return fmt.Sprintf("aptrie version: %s\n    git commit: %s\n", AptrieVersion, GitCommit)
}
