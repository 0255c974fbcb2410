package spotify

import spot "github.com/zmb3/spotify/v2"

// ArtistNames returns the artist names in credit order.
func ArtistNames(artists []spot.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}
