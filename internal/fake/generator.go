package fake

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/woozymasta/mcstatus/internal/status"
)

// DefaultVersion is advertised by generated status documents.
var DefaultVersion = status.Version{Name: "1.21.4", Protocol: 769}

var (
	motds = []string{
		"A Minecraft Server",
		"§aSurvival §7| §eSkyBlock §7| §bCreative",
		"§6§lHardcore §r§7- no resets since 2019",
		"Vanilla+ whitelist, apply on discord",
		"§cMaintenance tonight 22:00 UTC",
	}
	playerNames = []string{
		"Notch", "jeb_", "Dinnerbone", "Grumm", "Searge", "Marc", "slicedlime", "kingbdogz",
	}
	versions = []status.Version{
		{Name: "1.20.1", Protocol: 763},
		{Name: "1.20.4", Protocol: 765},
		{Name: "1.21", Protocol: 767},
		DefaultVersion,
		{Name: "Paper 1.21.1", Protocol: 767},
	}
)

// StatusJSON returns a status document with the given message and player counts.
func StatusJSON(motd string, online, maxPlayers int) string {
	return encode(status.Response{
		Version:     DefaultVersion,
		Players:     status.Players{Online: int64(online), Max: int64(maxPlayers)},
		Description: status.Description{Text: motd},
	})
}

// RandomStatus returns a plausible status document drawn from rng.
// Around a third of the documents carry a chat component description and a player sample.
func RandomStatus(rng *rand.Rand) string {
	maxPlayers := []int64{20, 50, 100, 500}[rng.IntN(4)]
	online := rng.Int64N(maxPlayers + 1)

	r := status.Response{
		Version:     versions[rng.IntN(len(versions))],
		Players:     status.Players{Online: online, Max: maxPlayers},
		Description: status.Description{Text: motds[rng.IntN(len(motds))]},
	}

	if rng.Float32() < 0.33 {
		raw, _ := json.Marshal(map[string]any{
			"text":  "",
			"extra": []map[string]string{{"text": r.Description.Text, "color": "gold"}},
		})
		r.Description.Raw = raw

		n := min(int(online), 3)
		for i := range n {
			r.Players.Sample = append(r.Players.Sample, status.Sample{
				Name: playerNames[rng.IntN(len(playerNames))],
				ID:   fmt.Sprintf("00000000-0000-4000-8000-%012d", i+1),
			})
		}
	}

	return encode(r)
}

func encode(r status.Response) string {
	data, err := json.Marshal(r)
	if err != nil {
		// every field is a plain value
		panic(err)
	}

	return string(data)
}
