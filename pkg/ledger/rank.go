package ledger

import "sort"

type Tier struct {
	Name string
	Min  int
}

// Tiers is ordered from the highest threshold down.
var Tiers = []Tier{
	{Name: "Earth Guardian", Min: 5000},
	{Name: "Forest Keeper", Min: 3000},
	{Name: "Green Champion", Min: 1500},
	{Name: "Eco Warrior", Min: 500},
	{Name: "Seedling", Min: 0},
}

func TierFor(tokens int) string {
	for _, t := range Tiers {
		if tokens >= t.Min {
			return t.Name
		}
	}
	return Tiers[len(Tiers)-1].Name
}

type Standing struct {
	Rank   int    `json:"rank"`
	UserId string `json:"userId"`
	Handle string `json:"handle"`
	Tokens int    `json:"tokens"`
	Tier   string `json:"tier"`
	Dir    int    `json:"dir"`
}

// Rank orders standings by tokens descending and assigns position ranks and
// tiers in place. Ties keep their input order.
func Rank(standings []Standing) []Standing {

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Tokens > standings[j].Tokens
	})

	for i := range standings {
		standings[i].Rank = i + 1
		standings[i].Tier = TierFor(standings[i].Tokens)
	}

	return standings

}
