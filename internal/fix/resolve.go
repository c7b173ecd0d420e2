package fix

// Versions holds the three version dates known for one extension. All
// of them are ISO dates, so lexicographic comparison is date
// comparison.
type Versions struct {
	Directory string // last update date listed in the plugin repository
	Metadata  string // date field of the info.txt
	Commit    string // author date of the last significant commit
}

// Resolution is the outcome of comparing the three versions. The two
// update flags are separate so a document that is already current is
// not rewritten.
type Resolution struct {
	Target          string
	UpdateMetadata  bool
	UpdateDirectory bool
}

func (r Resolution) NeedsUpdate() bool {
	return r.UpdateMetadata || r.UpdateDirectory
}

// Resolve picks the target version as the greater of the metadata and
// commit dates. The directory listing is a cache that gets corrected,
// it never contributes to the target.
func Resolve(v Versions) Resolution {
	target := v.Metadata
	if v.Commit > target {
		target = v.Commit
	}

	return Resolution{
		Target:          target,
		UpdateMetadata:  target != v.Metadata,
		UpdateDirectory: target != v.Directory,
	}
}
