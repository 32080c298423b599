// Package market analyses commodity price series: moving averages, RSI,
// MACD and Bollinger bands, trend classification with a trading signal,
// a short-horizon price forecast, and parsing of HTML mandi price boards.
package market
