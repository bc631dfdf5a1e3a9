// Package signalprop exposes event sources as ordinary get/set properties.
//
// A host object gets one property per event source. Assigning a callback to
// the property connects it to the source; assigning nil (or anything that is
// not a callback of the property's type) disconnects it; reading the property
// returns the callback last assigned, never the internal connector. At most
// one handler is active per property: every assignment fully tears down the
// previous subscription before establishing the new one.
//
// Three kinds of sources are supported:
//   - Plain signals (BindSignal): the callback is connected as-is.
//   - Invocation sources (BindInvocation): a callback object fires Called
//     with the invocation's argument list; the callback's result is written
//     back as the object's return value.
//   - Error signals (BindErrorSignal): the signal fires (message, stack)
//     with a serialized stack; callbacks receive normalized Frames.
//
// Basic example:
//
//	type Page struct {
//	    signalprop.Properties
//	    emitter *channel.Emitter
//	}
//
//	store := signalprop.NewStore()
//	onLoad, err := signalprop.BindSignal(page, "onLoadFinished", "loadFinished", store, page.emitter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	onLoad.Set(ctx, func(ctx context.Context, args ...any) error {
//	    fmt.Println("loaded:", args)
//	    return nil
//	})
//	onLoad.Set(ctx, nil) // detach
//
// Options:
//   - WithLogger: set logger for the binding.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithTracing: enable/disable OpenTelemetry tracing of connector invocations. Default is true.
//   - WithStackCodec: codec for error signal stacks. Default is JSON.
//
// Event sources live in the source/ subpackages (channel, nats, redis,
// kafka). Remote sources carry argument lists encoded by the payload
// package. script/lua exposes a Properties host to Lua scripts.
package signalprop
