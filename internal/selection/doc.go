// Package selection composes stations: it picks distinct catalog sections
// and fills each station's target duration from their clips, guaranteeing no
// clip is reused anywhere in a run. Best-effort fill by policy: underfill is
// tolerated, overfill never is.
package selection
