package core

const (
	SECONDS_PER_YEAR = 31_536_000

	// interest rates are basis points, 10000 = 100%
	INTEREST_RATE_DECIMALS = 10_000

	// health factor and risk parameters are whole percentages
	PERCENTAGE_PRECISION = 100

	// seconds a price may age before it is refused
	MAXIMUM_AGE = 100
)

const (
	SOL_USD_FEED_ID  = "0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"
	USDC_USD_FEED_ID = "0xeaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a"
)
