// Package runners produces JaCoCo coverage reports by running a project's
// JVM build tool.
//
// JacocoRunner supports Maven (verify plus jacoco:report) and Gradle
// (test plus jacocoTestReport). The build tool is detected from the source
// tree unless configured, and the project's wrapper script (mvnw, gradlew)
// is preferred over a globally installed tool.
//
// Usage:
//
//	runner := runners.NewJacocoRunner()
//	xml, err := runner.Run(ctx, application.RunOptions{Dir: "/src/head"})
//	if err != nil {
//	    return err
//	}
package runners
