// Package script provides the authored data a scripted meeting plays back.
//
// Core types:
//   - Script: An immutable, ordered sequence of segments
//   - Segment: One spoken turn (speaker, text, optional side effect)
//   - Participant: A speaker resolved by ID (display name, voice reference)
//   - Registry: Participant lookup by speaker ID
//   - EffectBinding: Binds a side effect ID to a board action
//   - Document: A script file with its participants and effect bindings
//   - Loader: Finds documents in directories, then in the embedded defaults
//
// Example usage:
//
//	loader := script.NewLoader(".scrumsim/scripts")
//	doc, err := loader.Load("refinement")
//	if err != nil {
//	    return err
//	}
//	for _, seg := range doc.Script.Segments() {
//	    p, _ := doc.Participants.Lookup(seg.SpeakerID)
//	    fmt.Printf("%s: %s\n", p.DisplayName, seg.Text)
//	}
package script
