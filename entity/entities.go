package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// YieldAggregator is the protocol level entity, one per deployment.
type YieldAggregator struct {
	Base
	Name                             string          `json:"name"`
	Slug                             string          `json:"slug"`
	SchemaVersion                    string          `json:"schemaVersion"`
	Network                          string          `json:"network"`
	TotalValueLockedUSD              decimal.Decimal `json:"totalValueLockedUSD"`
	CumulativeSupplySideRevenueUSD   decimal.Decimal `json:"cumulativeSupplySideRevenueUSD"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal `json:"cumulativeProtocolSideRevenueUSD"`
	CumulativeTotalRevenueUSD        decimal.Decimal `json:"cumulativeTotalRevenueUSD"`
	CumulativeUniqueUsers            int64           `json:"cumulativeUniqueUsers"`
	TotalPoolCount                   int64           `json:"totalPoolCount"`
	Vaults                           []string        `json:"vaults"`
}

func NewYieldAggregator(id string) *YieldAggregator {
	return &YieldAggregator{Base: NewBase(id)}
}

func (*YieldAggregator) TableName() string { return "yield_aggregator" }

type Token struct {
	Base
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	Decimals             int32           `json:"decimals"`
	LastPriceUSD         decimal.Decimal `json:"lastPriceUSD"`
	LastPriceBlockNumber uint64          `json:"lastPriceBlockNumber"`
}

func NewToken(id string) *Token {
	return &Token{Base: NewBase(id)}
}

func (*Token) TableName() string { return "token" }

func (t *Token) Sanitize() {
	t.Name = Sanitize(t.Name)
	t.Symbol = Sanitize(t.Symbol)
}

// Vault is the pool entity of a yield aggregator: input token deposited, share
// token minted.
type Vault struct {
	Base
	Protocol                         string            `json:"protocol"`
	Name                             string            `json:"name"`
	Symbol                           string            `json:"symbol"`
	InputToken                       string            `json:"inputToken"`
	OutputToken                      string            `json:"outputToken"`
	RewardTokens                     []string          `json:"rewardTokens"`
	RewardTokenEmissionsAmount       []decimal.Decimal `json:"rewardTokenEmissionsAmount"`
	RewardTokenEmissionsUSD          []decimal.Decimal `json:"rewardTokenEmissionsUSD"`
	Rewarder                         string            `json:"rewarder,omitempty"`
	PerformanceFeeBps                int64             `json:"performanceFeeBps"`
	InputTokenBalance                decimal.Decimal   `json:"inputTokenBalance"`
	OutputTokenSupply                decimal.Decimal   `json:"outputTokenSupply"`
	OutputTokenPriceUSD              decimal.Decimal   `json:"outputTokenPriceUSD"`
	PricePerShare                    decimal.Decimal   `json:"pricePerShare"`
	TotalValueLockedUSD              decimal.Decimal   `json:"totalValueLockedUSD"`
	CumulativeSupplySideRevenueUSD   decimal.Decimal   `json:"cumulativeSupplySideRevenueUSD"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal   `json:"cumulativeProtocolSideRevenueUSD"`
	CumulativeTotalRevenueUSD        decimal.Decimal   `json:"cumulativeTotalRevenueUSD"`
	CumulativeDepositCount           int64             `json:"cumulativeDepositCount"`
	CumulativeWithdrawCount          int64             `json:"cumulativeWithdrawCount"`
	IsInitialized                    bool              `json:"isInitialized"`
	CreatedTimestamp                 int64             `json:"createdTimestamp"`
	CreatedBlockNumber               uint64            `json:"createdBlockNumber"`
}

func NewVault(id string) *Vault {
	return &Vault{Base: NewBase(id)}
}

func (*Vault) TableName() string { return "vault" }

func (v *Vault) Sanitize() {
	v.Name = Sanitize(v.Name)
	v.Symbol = Sanitize(v.Symbol)
}

// Account existence alone means the address interacted with the protocol.
type Account struct {
	Base
	FirstSeenBlockNumber uint64 `json:"firstSeenBlockNumber"`
}

func NewAccount(id string) *Account {
	return &Account{Base: NewBase(id)}
}

func (*Account) TableName() string { return "account" }

// ActiveAccount is a per-period marker deduplicating active users.
type ActiveAccount struct {
	Base
}

func NewActiveAccount(id string) *ActiveAccount {
	return &ActiveAccount{Base: NewBase(id)}
}

func (*ActiveAccount) TableName() string { return "active_account" }

func DailyActiveAccountID(account string, dayID int64) string {
	return fmt.Sprintf("daily-%s-%d", account, dayID)
}

func HourlyActiveAccountID(account string, hourID int64) string {
	return fmt.Sprintf("hourly-%s-%d", account, hourID)
}

type Deposit struct {
	Base
	Hash        string          `json:"hash"`
	LogIndex    uint            `json:"logIndex"`
	Protocol    string          `json:"protocol"`
	To          string          `json:"to"`
	From        string          `json:"from"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   int64           `json:"timestamp"`
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	Vault       string          `json:"vault"`
}

func NewDeposit(id string) *Deposit {
	return &Deposit{Base: NewBase(id)}
}

func (*Deposit) TableName() string { return "deposit" }

type Withdraw struct {
	Base
	Hash        string          `json:"hash"`
	LogIndex    uint            `json:"logIndex"`
	Protocol    string          `json:"protocol"`
	To          string          `json:"to"`
	From        string          `json:"from"`
	BlockNumber uint64          `json:"blockNumber"`
	Timestamp   int64           `json:"timestamp"`
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	Vault       string          `json:"vault"`
}

func NewWithdraw(id string) *Withdraw {
	return &Withdraw{Base: NewBase(id)}
}

func (*Withdraw) TableName() string { return "withdraw" }

// StrategyReport records a harvest booked as revenue, keyed by event ID so a
// replayed report is only counted once.
type StrategyReport struct {
	Base
	Hash                   string          `json:"hash"`
	LogIndex               uint            `json:"logIndex"`
	Vault                  string          `json:"vault"`
	Strategy               string          `json:"strategy"`
	BlockNumber            uint64          `json:"blockNumber"`
	Timestamp              int64           `json:"timestamp"`
	GainUSD                decimal.Decimal `json:"gainUSD"`
	ProtocolSideRevenueUSD decimal.Decimal `json:"protocolSideRevenueUSD"`
}

func NewStrategyReport(id string) *StrategyReport {
	return &StrategyReport{Base: NewBase(id)}
}

func (*StrategyReport) TableName() string { return "strategy_report" }

// Stat is a running statistics accumulator over paired token and USD amounts.
// M2 fields hold the Welford sum of squared differences.
type Stat struct {
	Base
	Count int64 `json:"count"`

	Sum         decimal.Decimal `json:"sum"`
	SumUSD      decimal.Decimal `json:"sumUSD"`
	Mean        decimal.Decimal `json:"mean"`
	MeanUSD     decimal.Decimal `json:"meanUSD"`
	M2          decimal.Decimal `json:"m2"`
	M2USD       decimal.Decimal `json:"m2USD"`
	Variance    decimal.Decimal `json:"variance"`
	VarianceUSD decimal.Decimal `json:"varianceUSD"`

	MinAmount    decimal.Decimal `json:"minAmount"`
	MinAmountUSD decimal.Decimal `json:"minAmountUSD"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
	MaxAmountUSD decimal.Decimal `json:"maxAmountUSD"`

	MinUSD       decimal.Decimal `json:"minUSD"`
	MinUSDAmount decimal.Decimal `json:"minUSDAmount"`
	MaxUSD       decimal.Decimal `json:"maxUSD"`
	MaxUSDAmount decimal.Decimal `json:"maxUSDAmount"`

	Values    []decimal.Decimal `json:"values"`
	ValuesUSD []decimal.Decimal `json:"valuesUSD"`
}

func NewStat(id string) *Stat {
	return &Stat{Base: NewBase(id)}
}

func (*Stat) TableName() string { return "stat" }

type FinancialsDailySnapshot struct {
	Base
	Protocol                         string          `json:"protocol"`
	BlockNumber                      uint64          `json:"blockNumber"`
	Timestamp                        int64           `json:"timestamp"`
	TotalValueLockedUSD              decimal.Decimal `json:"totalValueLockedUSD"`
	DailySupplySideRevenueUSD        decimal.Decimal `json:"dailySupplySideRevenueUSD"`
	DailyProtocolSideRevenueUSD      decimal.Decimal `json:"dailyProtocolSideRevenueUSD"`
	DailyTotalRevenueUSD             decimal.Decimal `json:"dailyTotalRevenueUSD"`
	CumulativeSupplySideRevenueUSD   decimal.Decimal `json:"cumulativeSupplySideRevenueUSD"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal `json:"cumulativeProtocolSideRevenueUSD"`
	CumulativeTotalRevenueUSD        decimal.Decimal `json:"cumulativeTotalRevenueUSD"`
}

func NewFinancialsDailySnapshot(id string) *FinancialsDailySnapshot {
	return &FinancialsDailySnapshot{Base: NewBase(id)}
}

func (*FinancialsDailySnapshot) TableName() string { return "financials_daily_snapshot" }

type UsageMetricsDailySnapshot struct {
	Base
	Protocol              string `json:"protocol"`
	BlockNumber           uint64 `json:"blockNumber"`
	Timestamp             int64  `json:"timestamp"`
	DailyActiveUsers      int64  `json:"dailyActiveUsers"`
	CumulativeUniqueUsers int64  `json:"cumulativeUniqueUsers"`
	DailyTransactionCount int64  `json:"dailyTransactionCount"`
	DailyDepositCount     int64  `json:"dailyDepositCount"`
	DailyWithdrawCount    int64  `json:"dailyWithdrawCount"`
	TotalPoolCount        int64  `json:"totalPoolCount"`
}

func NewUsageMetricsDailySnapshot(id string) *UsageMetricsDailySnapshot {
	return &UsageMetricsDailySnapshot{Base: NewBase(id)}
}

func (*UsageMetricsDailySnapshot) TableName() string { return "usage_metrics_daily_snapshot" }

type UsageMetricsHourlySnapshot struct {
	Base
	Protocol               string `json:"protocol"`
	BlockNumber            uint64 `json:"blockNumber"`
	Timestamp              int64  `json:"timestamp"`
	HourlyActiveUsers      int64  `json:"hourlyActiveUsers"`
	CumulativeUniqueUsers  int64  `json:"cumulativeUniqueUsers"`
	HourlyTransactionCount int64  `json:"hourlyTransactionCount"`
	HourlyDepositCount     int64  `json:"hourlyDepositCount"`
	HourlyWithdrawCount    int64  `json:"hourlyWithdrawCount"`
}

func NewUsageMetricsHourlySnapshot(id string) *UsageMetricsHourlySnapshot {
	return &UsageMetricsHourlySnapshot{Base: NewBase(id)}
}

func (*UsageMetricsHourlySnapshot) TableName() string { return "usage_metrics_hourly_snapshot" }

type VaultDailySnapshot struct {
	Base
	Protocol                         string            `json:"protocol"`
	Vault                            string            `json:"vault"`
	BlockNumber                      uint64            `json:"blockNumber"`
	Timestamp                        int64             `json:"timestamp"`
	TotalValueLockedUSD              decimal.Decimal   `json:"totalValueLockedUSD"`
	InputTokenBalance                decimal.Decimal   `json:"inputTokenBalance"`
	OutputTokenSupply                decimal.Decimal   `json:"outputTokenSupply"`
	OutputTokenPriceUSD              decimal.Decimal   `json:"outputTokenPriceUSD"`
	PricePerShare                    decimal.Decimal   `json:"pricePerShare"`
	RewardTokenEmissionsAmount       []decimal.Decimal `json:"rewardTokenEmissionsAmount"`
	RewardTokenEmissionsUSD          []decimal.Decimal `json:"rewardTokenEmissionsUSD"`
	DailySupplySideRevenueUSD        decimal.Decimal   `json:"dailySupplySideRevenueUSD"`
	DailyProtocolSideRevenueUSD      decimal.Decimal   `json:"dailyProtocolSideRevenueUSD"`
	DailyTotalRevenueUSD             decimal.Decimal   `json:"dailyTotalRevenueUSD"`
	CumulativeSupplySideRevenueUSD   decimal.Decimal   `json:"cumulativeSupplySideRevenueUSD"`
	CumulativeProtocolSideRevenueUSD decimal.Decimal   `json:"cumulativeProtocolSideRevenueUSD"`
	CumulativeTotalRevenueUSD        decimal.Decimal   `json:"cumulativeTotalRevenueUSD"`
}

func NewVaultDailySnapshot(id string) *VaultDailySnapshot {
	return &VaultDailySnapshot{Base: NewBase(id)}
}

func (*VaultDailySnapshot) TableName() string { return "vault_daily_snapshot" }

type VaultHourlySnapshot struct {
	Base
	Protocol                     string          `json:"protocol"`
	Vault                        string          `json:"vault"`
	BlockNumber                  uint64          `json:"blockNumber"`
	Timestamp                    int64           `json:"timestamp"`
	TotalValueLockedUSD          decimal.Decimal `json:"totalValueLockedUSD"`
	InputTokenBalance            decimal.Decimal `json:"inputTokenBalance"`
	OutputTokenSupply            decimal.Decimal `json:"outputTokenSupply"`
	OutputTokenPriceUSD          decimal.Decimal `json:"outputTokenPriceUSD"`
	PricePerShare                decimal.Decimal `json:"pricePerShare"`
	HourlySupplySideRevenueUSD   decimal.Decimal `json:"hourlySupplySideRevenueUSD"`
	HourlyProtocolSideRevenueUSD decimal.Decimal `json:"hourlyProtocolSideRevenueUSD"`
	HourlyTotalRevenueUSD        decimal.Decimal `json:"hourlyTotalRevenueUSD"`
}

func NewVaultHourlySnapshot(id string) *VaultHourlySnapshot {
	return &VaultHourlySnapshot{Base: NewBase(id)}
}

func (*VaultHourlySnapshot) TableName() string { return "vault_hourly_snapshot" }

// Cursor records the last block fully processed by the indexer.
type Cursor struct {
	Base
	BlockNumber uint64 `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	Timestamp   int64  `json:"timestamp"`
}

func NewCursor(id string) *Cursor {
	return &Cursor{Base: NewBase(id)}
}

func (*Cursor) TableName() string { return "cursor" }
