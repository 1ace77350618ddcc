package state

var (
	accountPrefix       = []byte("account/")
	mintPrefix          = []byte("mint/")
	tokenBalancePrefix  = []byte("balance/")
	marketplacePrefix   = []byte("marketplace/")
	productPrefix       = []byte("product/")
	paymentPrefix       = []byte("payment/")
	rewardPrefix        = []byte("reward/")
	accessRequestPrefix = []byte("access-request/")
	escrowPrefix        = []byte("escrow/")
)

func prefixed(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}
