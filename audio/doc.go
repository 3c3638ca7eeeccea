// Package audio resolves spoken audio for a script turn.
//
// A Resolver walks an ordered list of Provider strategies until one returns a
// clip. The usual chain is:
//
//	resolver := audio.NewResolver([]audio.Provider{
//	    audio.NewCacheProvider(cacheDir),
//	    audio.NewSynthProvider(synthCfg),
//	    audio.NewLocalProvider(localCfg),
//	}, audio.WithProviderTimeout(8*time.Second))
//
//	clip, err := resolver.Resolve(ctx, audio.Request{SpeakerID: "sarah", Text: "Morning!"})
//	if err != nil {
//	    return err // malformed request or cancelled context
//	}
//	if clip == nil {
//	    // no audio: the turn runs in text-only mode
//	}
//
// Provider failures never surface from Resolve. They are logged and the next
// provider is tried. Reordering or removing providers is a change to the slice
// passed to NewResolver.
package audio
