// Package meeting plays a scripted meeting from the first segment to the last.
//
// A Sequencer walks a script one segment at a time. For each segment it
// resolves the speaker, appends the transcript entry, asks the audio resolver
// for a clip, plays it through the playback controller (or waits out a
// reading time when there is no audio) and then fires the segment's side
// effect. Segments never overlap.
//
// Pause holds the current utterance in place; Resume continues it. Cancel
// stops all audio before it returns, and no transcript entry is appended and
// no side effect fires once it has been observed. An unknown speaker is the
// only error that ends a session early.
//
// Example usage:
//
//	seq := meeting.New(meeting.Config{
//		Resolver:   resolver,
//		Controller: playback.NewController(),
//		Dispatcher: dispatcher,
//	})
//	err := seq.Start(ctx, doc.Script, doc.Participants, meeting.Callbacks{
//		OnTranscript: func(e transcript.Entry) { fmt.Println(e.SpeakerName+":", e.Text) },
//	})
//	report, err := seq.Wait(ctx)
package meeting
