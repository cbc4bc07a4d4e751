package mocks

//go:generate mockgen -destination=crawler_mocks.go -package=mocks broker-scout/internal/crawler MessageReader,MessageWriter
//go:generate mockgen -destination=graph_mocks.go -package=mocks broker-scout/internal/graph SessionRunner,DriverSessioner
//go:generate mockgen -destination=store_mocks.go -package=mocks broker-scout/internal/store StatusStore
