/*
Package ratelimit groups the rate limiting primitives used by the server.

  - bucket: token bucket that paces accepted connections

A limiter is optional; the server accepts as fast as the pool drains when
none is configured:

	limiter, err := bucket.New(bucket.Every(10*time.Millisecond), 20)
	if err != nil {
		return err
	}
	srv := httpd.NewServer(httpd.ServerConfig{AcceptLimiter: limiter}, pool, handler)
*/
package ratelimit
