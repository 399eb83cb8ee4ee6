// Package wire defines the network-magic constants shared by the chain
// parameter sets. It mirrors the small slice of the Bitcoin wire protocol
// that chainparams needs, not a full peer-to-peer message codec.
package wire

// BitcoinNet represents which Bitcoin network a message belongs to.
type BitcoinNet uint32

// Constants used to indicate the message Bitcoin network. They can also be
// used to seek to the next message when a stream's state is unknown, but
// this package does not implement that functionality.
const (
	// MainNet represents the main Bitcoin network.
	MainNet BitcoinNet = 0xd9b4bef9

	// TestNet represents the regression test network.
	TestNet BitcoinNet = 0xdab5bffa

	// TestNet3 represents the test network (version 3).
	TestNet3 BitcoinNet = 0x0709110b

	// TestDiskMagic is the on-disk block-file magic used by testnet3.
	TestDiskMagic BitcoinNet = 0x0b110907

	// RegTestNet represents the private regression test network.
	RegTestNet BitcoinNet = 0xfabfb5da

	// SimNet represents the simulation test network.
	SimNet BitcoinNet = 0x12141c16
)

// String returns the BitcoinNet in human-readable form.
func (n BitcoinNet) String() string {
	switch n {
	case MainNet:
		return "MainNet"
	case TestNet:
		return "TestNet"
	case TestNet3:
		return "TestNet3"
	case TestDiskMagic:
		return "TestDiskMagic"
	case RegTestNet:
		return "RegTestNet"
	case SimNet:
		return "SimNet"
	default:
		return "Unknown BitcoinNet"
	}
}

// ServiceFlag identifies services supported by a peer.
type ServiceFlag uint64
