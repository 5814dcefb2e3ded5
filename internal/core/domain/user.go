package domain

// UserProfile is supplied by the auth collaborator. Phone and Address are
// optional at the profile level; order submission requires both.
type UserProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ShippingComplete reports whether the profile carries everything an order
// needs to be delivered.
func (p UserProfile) ShippingComplete() bool {
	return p.Phone != "" && p.Address != ""
}
