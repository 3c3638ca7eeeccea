// Package scrumsim plays scripted agile meetings: a fixed conversation
// between a learner and synthetic team members, voiced through a chain of
// audio providers, with board changes applied as the meeting reaches them.
//
// The package is organized into subpackages by domain:
//
//   - script: scripts, participants and YAML script documents
//   - audio: the provider chain (cache, speech gateway, local synthesis)
//   - playback: the single-utterance playback controller and players
//   - sideeffect: the side effect dispatcher
//   - meeting: the turn sequencer and its completion report
//   - transcript: the live transcript recorder and the meeting archive
//   - board: in-memory, GitHub, GitLab and Jira boards targeted by side effects
//   - notify: meeting lifecycle notifications (log, Slack, webhook)
//   - config: layered configuration and typed settings
//   - auth, http: speech gateway credentials and HTTP client
//   - testutil: test contexts, fixtures and fakes
//
// This package wires them together from settings.
//
// # Quick Start
//
//	settings, _ := config.ParseSettings(config.NewAppResolver(os.Stderr).Resolve())
//	services, err := scrumsim.NewServices(ctx, settings)
//	if err != nil {
//	    return err
//	}
//
//	doc, _ := services.Scripts.Load("refinement")
//	seq, _ := services.NewMeeting(doc)
//	_ = seq.StartDocument(ctx, doc, meeting.Callbacks{})
//	report, err := seq.Wait(ctx)
//
// See individual package documentation for detailed usage.
package scrumsim
