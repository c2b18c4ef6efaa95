package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/rights --output domain/rights --outpkg rightsmock --filename source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DatasetSource --dir ../domain/market --output domain/market --outpkg marketmock --filename dataset_source_mock.go
