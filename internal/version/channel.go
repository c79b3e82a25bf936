package version

// ChannelEnv names the environment variable that selects the release channel.
const ChannelEnv = "CFG_RELEASE_CHANNEL"

// DefaultChannel is reported when ChannelEnv is unset.
const DefaultChannel = "nightly"

// LookupFunc reports the value of an environment variable and whether it is set.
// os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Channel returns the release channel named by ChannelEnv, or DefaultChannel.
// A nil lookup is treated as an empty environment.
func Channel(lookup LookupFunc) string {
	if lookup == nil {
		return DefaultChannel
	}
	if channel, ok := lookup(ChannelEnv); ok {
		return channel
	}
	return DefaultChannel
}
