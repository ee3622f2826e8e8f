// Package stockfolio tracks named investment portfolios as time-varying
// collections of stock holdings.
//
// The package is organised around a temporal state engine:
//   - Holdings are mutated through a [Service] (add, remove, rebalance). Every
//     successful mutation persists a dated [Snapshot] into a [SnapshotStore]
//     and records the mutation date in the [Registry].
//   - The state of a portfolio on any past date is rebuilt by the
//     [Reconstructor] from the snapshot valid on that date.
//   - Pure analytics ([GainLoss], [MovingAverage], [CrossoverDates]) work on a
//     single [PriceSeries] and never touch persistence.
//   - [Service.PlotPerformance] samples the total value of a portfolio over a
//     date range into a text bar chart.
//
// Price data is supplied by a [PriceSource]; the alphavantage package provides
// a remote fetcher and an on-disk CSV cache.
package stockfolio
