package artifacts

// Artifact is a compiled output and what happened when it was persisted
type Artifact struct {
	Path    string
	Content []byte
	// Existed is true when the file was present before this write
	Existed bool
	// Written is false when the existing content already matched
	Written bool
}
