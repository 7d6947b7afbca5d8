package weather

import "sort"

type coordinates struct {
	lat float64
	lon float64
}

// districtCoords covers the districts the pilot deployment serves.
var districtCoords = map[string]coordinates{
	"Ranchi":       {23.3441, 85.3096},
	"Bokaro":       {23.6693, 86.1511},
	"Dhanbad":      {23.7957, 86.4304},
	"Jamshedpur":   {22.8046, 86.2029},
	"Hazaribagh":   {23.9925, 85.3637},
	"Deoghar":      {24.4823, 86.6961},
	"Giridih":      {24.1841, 86.3000},
	"Dumka":        {24.2685, 87.2497},
	"Palamu":       {24.0390, 84.0650},
	"Gumla":        {23.0441, 84.5421},
	"Simdega":      {22.6154, 84.5118},
	"Chaibasa":     {22.5526, 85.8066},
	"Lohardaga":    {23.4340, 84.6801},
	"Khunti":       {23.0715, 85.2774},
	"Ramgarh":      {23.6363, 85.5124},
	"Chatra":       {24.2064, 84.8708},
	"Koderma":      {24.4677, 85.5937},
	"Jamtara":      {23.9622, 86.8048},
	"Pakur":        {24.6336, 87.8490},
	"Sahibganj":    {25.2425, 87.6456},
	"Godda":        {24.8270, 87.2135},
	"Latehar":      {23.7441, 84.4995},
	"Garhwa":       {24.1600, 83.8075},
	"Seraikela":    {22.6927, 85.9317},
	"East Singhbhum": {22.5900, 86.4849},
}

// Districts returns the covered district names in sorted order.
func Districts() []string {
	names := make([]string, 0, len(districtCoords))
	for name := range districtCoords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
