// Package conf loads process configuration with viper, the way the rest of
// the ambient stack expects it: environment overrides, an optional yaml file,
// and a Configuration value other packages read from rather than looking up
// flags themselves.
package conf

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Cfg is the process-wide configuration, populated by init.
var Cfg *Configuration

// DataDir is the directory validation state (blocks/, chainstate/, mempool.dat)
// is written under.
var DataDir string

// ChainConfig holds knobs that affect how the block-index / reorg driver
// behaves.
type ChainConfig struct {
	// StartLogHeight, when non-zero, enables the utxo.log stats dump
	// (chainstate.CollectUTXOStats) once the active tip reaches this height.
	StartLogHeight int32
	// AssumeValid is the hex-encoded hash of a block assumed to have a valid
	// history; ConnectBlock may skip script checks for its ancestors.
	AssumeValid string
	// MinimumChainWork, hex-encoded, gates the assumed-valid skip so it can't
	// be used to fast-track a low-work chain.
	MinimumChainWork string
	// UtxoHashStartHeight/UtxoHashEndHeight bound the height range the
	// chainstate UTXO-set hash is accumulated over.
	UtxoHashStartHeight int32
	UtxoHashEndHeight   int32
}

// BlockIndexConfig holds knobs for the block-index forest's self-checks.
type BlockIndexConfig struct {
	// CheckBlockIndex selects the block-index consistency walk. No code reads
	// it: lchain.CheckBlockIndex performs no walk and always returns nil.
	CheckBlockIndex bool
}

// ScriptConfig holds knobs for script/output standardness classification
// and parallel script verification.
type ScriptConfig struct {
	IsBareMultiSigStd        bool
	AcceptDataCarrier        bool
	MaxDatacarrierBytes      uint
	// Par is the number of worker goroutines the parallel script check
	// queue spins up.
	Par                      int
	PromiscuousMempoolFlags  string
}

// TxOutConfig holds knobs used when classifying an output as dust.
type TxOutConfig struct {
	DustRelayFee int64 // satoshis per kB
}

// MempoolConfig holds admission-pipeline policy knobs (§4.H).
type MempoolConfig struct {
	MaxMemPoolSize        uint64
	MaxPoolSize           uint64
	MemPoolExpiry         int64 // hours
	LimitAncestorCount    uint64
	LimitAncestorSize     uint64
	LimitDescendantCount  uint64
	LimitDescendantSize   uint64
	MinRelayTxFee         int64 // satoshis per kB
	LimitFreeRelay        uint64
	RejectAbsurdFee       bool
	AcceptNonStdTxn       bool
	RelayPriority         bool
	// AbsurdFeeMultiplier bounds a transaction's fee at this many multiples
	// of the minimum relay fee (MinRelayTxFee) for its size before it's rejected as a probable
	// fat-fingered fee, only enforced when RejectAbsurdFee is set.
	AbsurdFeeMultiplier uint64
}

// PruneConfig holds the flush/prune controller's on-disk budget knobs (§4.J).
type PruneConfig struct {
	Enable        bool
	TargetSizeMB  uint64
	DBCacheBytes  int64
	MinBlocksKeep int32
}

// P2PNetConfig selects which network parameters to run with. chaincore has
// no networking layer of its own, but the block-index/chain packages still
// key their genesis block and difficulty rules off it.
type P2PNetConfig struct {
	TestNet bool
	RegTest bool
}

// Configuration is the top-level, unmarshalled process configuration.
type Configuration struct {
	DataDir             string
	Reindex             bool
	Excessiveblocksize  uint64
	P2PNet              P2PNetConfig
	Chain               ChainConfig
	BlockIndex          BlockIndexConfig
	Script              ScriptConfig
	TxOut               TxOutConfig
	Mempool             MempoolConfig
	Prune               PruneConfig
	Log                 struct {
		Level    string
		FileName string
	}
}

func defaults() *Configuration {
	c := &Configuration{
		DataDir: defaultDataDir(),
	}
	c.Chain.MinimumChainWork = "0"
	c.Excessiveblocksize = 32 * 1000 * 1000
	c.Script.Par = 1
	c.Script.IsBareMultiSigStd = true
	c.Script.AcceptDataCarrier = true
	c.Script.MaxDatacarrierBytes = 223
	c.TxOut.DustRelayFee = 3000
	c.Mempool.MaxMemPoolSize = 300 * 1000 * 1000
	c.Mempool.MaxPoolSize = 300 * 1000 * 1000
	c.Mempool.MemPoolExpiry = 336 // 14 days, in hours
	c.Mempool.LimitAncestorCount = 25
	c.Mempool.LimitAncestorSize = 101
	c.Mempool.LimitDescendantCount = 25
	c.Mempool.LimitDescendantSize = 101
	c.Mempool.MinRelayTxFee = 1000
	c.Mempool.LimitFreeRelay = 15
	c.Mempool.RelayPriority = true
	c.Mempool.RejectAbsurdFee = false
	c.Mempool.AbsurdFeeMultiplier = 10000
	c.Prune.MinBlocksKeep = 288
	c.Log.Level = "info"
	c.Log.FileName = "debug"
	return c
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".chaincore")
}

func load() *Configuration {
	c := defaults()

	viper.SetEnvPrefix("chaincore")
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")
	viper.SetConfigName("chaincore")
	if dir := os.Getenv("CHAINCORE_CONF_DIR"); dir != "" {
		viper.AddConfigPath(dir)
	}
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err == nil {
		_ = viper.Unmarshal(c)
	}
	// environment overrides win regardless of whether a file was found.
	if dd := viper.GetString("DATADIR"); dd != "" {
		c.DataDir = dd
	}
	return c
}

func init() {
	Cfg = load()
	DataDir = Cfg.DataDir
}

// GetDataPath returns DataDir, creating it if necessary.
func GetDataPath() string {
	if err := os.MkdirAll(DataDir, 0750); err != nil {
		panic(err)
	}
	return DataDir
}

// FileExists reports whether path exists on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
