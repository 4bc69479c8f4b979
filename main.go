// @title           HRHub Approval API
// @version         1.0
// @description     Electronic approval workflow for report documents
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a Keycloak JWT
package main

import "github.com/kimjiwon0450/Front-HRHub-sub000/cmd"

func main() {
	cmd.Execute()
}
