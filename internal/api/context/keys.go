package context

type Key string

const (
	Claims Key = "claims"
	Params Key = "params"
	// Token holds the *models.Token resolved from an sk- key.
	Token Key = "token"
)
