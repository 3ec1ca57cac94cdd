package models

// UnknownOrg is the placeholder used when a provider does not report the
// organization that operates the client's network.
const UnknownOrg = "未知"

// IPInfo holds public-IP metadata normalized from one provider's response.
// Fields that a provider does not report are left as empty strings. A record
// is never merged with a previous one; every refresh replaces it wholesale.
type IPInfo struct {
	IP      string // IP is the public address of the client.
	City    string // City is the city the address is registered in.
	Region  string // Region is the province or state.
	Country string // Country is the country name.
	Org     string // Org is the network operator (ISP or organization).
}
