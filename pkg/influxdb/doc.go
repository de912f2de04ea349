// Package influxdb is a client for the InfluxDB 0.8 HTTP API that spreads
// requests across several cluster hosts.
//
// Every call goes through a failover dispatcher: a host that cannot be
// reached is disabled for FailoverTimeout and the call is retried on the
// next host, up to MaxRetries times. Error responses from a reachable host
// are returned as *APIError and never cause a failover.
//
//	opts := influxdb.DefaultOptions()
//	opts.Hosts = []influxdb.HostConfig{{Host: "db1.local"}, {Host: "db2.local"}}
//	opts.Database = "metrics"
//
//	client, err := influxdb.New(opts)
//	if err != nil {
//	    return err
//	}
//	err = client.WritePoint(ctx, "cpu", influxdb.Point{"value": 0.64, "host": "web1"}, nil)
package influxdb
