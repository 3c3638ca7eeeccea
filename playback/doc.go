// Package playback owns every audible utterance in a meeting.
//
// The Controller is the only way to create and play audio handles. It keeps
// at most one handle active, pauses and resumes that handle in place, and
// StopAll sweeps every handle it issued in the current session. A speaker
// callback reports who is audibly speaking; it is cleared whenever playback
// ends, pauses or stops.
//
// Players are pluggable: ClockPlayer advances on a timer (used for silent
// reading time and for headless runs) and ExecPlayer drives a system audio
// command.
package playback
