package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Gamedex API
// @version         0.1.0
// @description     Game catalog collection pipeline and discovery read layer.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
